// Command servicetoken mints a credential that lets an internal service call
// the /system endpoints. The signing secret is read from SYSTEM_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dtroode/finance-server/internal/config"
	"github.com/dtroode/finance-server/internal/token"
)

func main() {
	cfg, err := config.NewSystemConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	service := flag.String("s", "", "calling service name")
	ttl := flag.Duration("t", cfg.TokenTTL, "token lifetime, at most SYSTEM_TOKEN_TTL")
	flag.Parse()

	if *service == "" {
		flag.Usage()
		os.Exit(2)
	}

	tokenString, err := token.NewServiceJWT(cfg.Secret, []string{*service}, cfg.TokenTTL).GenerateServiceToken(*service, *ttl)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	fmt.Println(tokenString)
}
