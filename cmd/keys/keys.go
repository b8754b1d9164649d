package keys

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"

	"crosstrader/src/security"
)

func printUsage() {
	fmt.Println("Available commands:")
	fmt.Println("  help                             Show this help message")
	fmt.Println("  shutdown                         Exit the application")
	fmt.Println("  seal_creds <key> <secret>        Encrypt bridge router credentials")
	fmt.Println("  hash_token <token>               Hash an operator API token")
	fmt.Println()
}

// Keys is the interactive credentials tool. It seals bridge router
// credentials with the AES-GCM credentials key and hashes operator tokens,
// printing the environment values the service expects.
type Keys struct {
}

func (t *Keys) Start() error {
	reader := bufio.NewScanner(os.Stdin)

	reader.Buffer(make([]byte, 0, 1024), 1024*1024)

	for {
		fmt.Print("cmd> ")

		if !reader.Scan() {
			return nil
		}

		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, " ")
		cmd := parts[0]

		switch cmd {

		case "shutdown":
			fmt.Println("Exiting CLI...")
			return nil

		case "help":
			printUsage()

		case "seal_creds":
			if len(parts) < 3 {
				printUsage()
				continue
			}
			key, secret := parts[1], parts[2]

			encryptedKey, err := security.EncryptString(key)
			if err != nil {
				logger.WithError(err).Error("Failed to encrypt bridge api key")
				continue
			}

			encryptedSecret, err := security.EncryptString(secret)
			if err != nil {
				logger.WithError(err).Error("Failed to encrypt bridge api secret")
				continue
			}

			fmt.Printf("BRIDGE_API_KEY_ENC=%s\n", encryptedKey)
			fmt.Printf("BRIDGE_API_SECRET_ENC=%s\n", encryptedSecret)

		case "hash_token":
			if len(parts) < 2 {
				printUsage()
				continue
			}

			hash, err := security.HashOperatorToken(parts[1])
			if err != nil {
				logger.WithError(err).Error("Failed to hash operator token")
				continue
			}

			fmt.Printf("OPERATOR_TOKEN_HASH=%s\n", hash)

		default:
			printUsage()
		}
	}
}
