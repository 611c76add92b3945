package main

import (
	"fmt"
	"os"

	"github.com/abab/abab/pkg/crypto"
)

func main() {
	signer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Address: %s\n", signer.Address().Hex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n", signer.PrivateKeyHex())
	fmt.Printf("Public Key: %s\n", signer.PublicKeyHex())
	fmt.Println()
	fmt.Println("Add this address to CONSENSUS_VALIDATORS in .env to seat it in the committee.")
}
