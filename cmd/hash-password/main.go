// Command hash-password prints a bcrypt hash for a password read from stdin,
// for seeding accounts directly in the database.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tasklytics/tasklytics-api/internal/domain"
	"github.com/tasklytics/tasklytics-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", auth.DefaultCost, "bcrypt cost (4-31)")
	flag.Parse()

	hash, err := hashFromReader(bufio.NewReader(os.Stdin), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash-password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// hashFromReader hashes the first line of r after checking the password policy.
func hashFromReader(r *bufio.Reader, cost int) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")

	if err := domain.ValidatePassword(password); err != nil {
		return "", err
	}
	return auth.NewBcryptVerifier(cost).Hash(password)
}
