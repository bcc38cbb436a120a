// Command hash-generator prints the bcrypt hash of an API key for use as
// server.api_key_hash. The key is read from -key or, if absent, from stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/phrazzld/videosnap/internal/service/auth"
)

func main() {
	key := flag.String("key", "", "API key to hash (reads stdin when empty)")
	flag.Parse()

	if *key == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "failed to read key from stdin:", err)
			os.Exit(1)
		}
		*key = strings.TrimSpace(line)
	}

	hash, err := auth.HashKey(*key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
