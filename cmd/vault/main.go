package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betkit/polytrade/pkg/keystore"
)

func main() {
	var (
		storePath = flag.String("store", getenv("KEYSTORE_PATH", "data/keystore.badger"), "keystore db path")
		secretKey = flag.String("key", getenv("KEYSTORE_KEY", ""), "db encryption key (32 bytes base64/hex)")
		profile   = flag.String("profile", getenv("KEYSTORE_PROFILE", "default"), "profile name")
		derive    = flag.String("path", keystore.DefaultDerivationPath, "derivation path for mnemonic profiles")

		importKey      = flag.Bool("import-key", false, "read a private key from stdin and store it")
		importMnemonic = flag.Bool("import-mnemonic", false, "read a mnemonic from stdin and store it")
		list           = flag.Bool("list", false, "list stored profile names")
		del            = flag.Bool("delete", false, "delete the profile")
		show           = flag.Bool("show", false, "show the profile's address, never the secret")
	)
	flag.Parse()

	keyBytes, err := keystore.ParseEncryptionKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	store, err := keystore.Open(*storePath, keyBytes)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	switch {
	case *importKey:
		fmt.Fprintln(os.Stderr, "paste the private key (hex) and press enter:")
		secret := readLine()
		if err := store.SaveKey(*profile, secret); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "stored key profile %q in %s\n", *profile, *storePath)
		printAddress(store, *profile)
	case *importMnemonic:
		fmt.Fprintln(os.Stderr, "paste the mnemonic (12/15/18/21/24 words) and press enter:")
		secret := readLine()
		if err := store.SaveMnemonic(*profile, secret, *derive); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "stored mnemonic profile %q in %s\n", *profile, *storePath)
		printAddress(store, *profile)
	case *list:
		names, err := store.List()
		if err != nil {
			fatal(err)
		}
		if len(names) == 0 {
			fmt.Println("no profiles stored")
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
	case *del:
		if err := store.Delete(*profile); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "deleted profile %q\n", *profile)
	case *show:
		p, err := store.Profile(*profile)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("profile: %s\n", p.Name)
		fmt.Printf("kind:    %s\n", p.Kind)
		if p.Path != "" {
			fmt.Printf("path:    %s\n", p.Path)
		}
		fmt.Printf("created: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
		printAddress(store, *profile)
	default:
		fatal(fmt.Errorf("pick one of -import-key, -import-mnemonic, -list, -delete, -show"))
	}
}

func printAddress(store *keystore.Store, profile string) {
	w, err := store.Wallet(profile)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("address: %s\n", w.Address().Hex())
}

func readLine() string {
	r := bufio.NewReader(os.Stdin)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
