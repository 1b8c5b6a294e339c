package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/tibs245/oria-auth/internal/auth"
)

// keygen writes a fresh Ed25519 signing pair as PEM files. Run it once per
// environment and point the api at the output via ORIA_AUTH_PRIVATE_KEY_FILE
// and ORIA_AUTH_PUBLIC_KEY_FILE.
func main() {
	log.SetFlags(0)
	var (
		outDir = flag.String("out", ".", "Directory for the generated key files")
		name   = flag.String("name", "oria-auth", "Base name for the key files")
		force  = flag.Bool("force", false, "Overwrite existing key files")
	)
	flag.Parse()

	privPath := filepath.Join(*outDir, *name+".key")
	pubPath := filepath.Join(*outDir, *name+".pub")

	if !*force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				log.Fatalf("%s already exists (use -force to overwrite)", p)
			}
		}
	}

	keys, err := auth.NewKeyPair()
	if err != nil {
		log.Fatalf("generate key pair: %v", err)
	}
	privPEM, pubPEM, err := keys.EncodePEM()
	if err != nil {
		log.Fatalf("encode key pair: %v", err)
	}

	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		log.Fatalf("write %s: %v", privPath, err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		log.Fatalf("write %s: %v", pubPath, err)
	}

	log.Printf("wrote %s and %s", privPath, pubPath)
}
