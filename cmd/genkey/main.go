package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: genkey <output file>")
		os.Exit(1)
		return
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
		return
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
		return
	}

	f, err := os.OpenFile(os.Args[1], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
		return
	}
	defer f.Close()

	err = pem.Encode(f, &pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err != nil {
		fmt.Println(err)
		os.Exit(5)
		return
	}

	fmt.Println("wrote private key to", os.Args[1])
}
