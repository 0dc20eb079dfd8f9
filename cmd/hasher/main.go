package main

import (
	"fmt"
	"log"
	"os"

	"github.com/avdeyev/authsvc/internal/lib/password"
)

// A simple tool to generate bcrypt hashes for user passwords.
// Usage: go run ./cmd/hasher "your-password-here"
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/hasher \"your-password-here\"")
	}

	hash, err := password.Hash(os.Args[1])
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	fmt.Println(string(hash))
}
