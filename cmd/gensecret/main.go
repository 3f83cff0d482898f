package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// Secret key to sign access tokens with HS256 has to be at least as long as the hash output
const minSecretKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, rand.Reader, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, random io.Reader, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	length := fs.IntP("bytes", "b", minSecretKeyBytesLen, "Secret key length in bytes")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *length < minSecretKeyBytesLen {
		return fmt.Errorf("secret key must be at least %d bytes", minSecretKeyBytesLen)
	}

	b := make([]byte, *length)
	if _, err := io.ReadFull(random, b); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, hex.EncodeToString(b))
	return err
}
