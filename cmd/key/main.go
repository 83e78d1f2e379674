package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ridepulse/internal/cli"
)

func main() {
	var (
		partyID = flag.String("party-id", "", "ID of the rider, driver or admin (subject)")
		role    = flag.String("role", "RIDER", "Party role: RIDER | DRIVER | ADMIN")
		secret  = flag.String("secret", "", "JWT HMAC secret (HS256)")
		ttl     = flag.Duration("ttl", 2*time.Hour, "Token lifetime")
	)
	flag.Parse()

	if *partyID == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: key --party-id=<id> --role=RIDER --secret='<secret>' [--ttl=2h]")
		os.Exit(2)
	}

	token, claims, err := cli.GeneratePartyToken(*secret, *partyID, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println("TOKEN:")
	fmt.Println(token)
	fmt.Println("\nCLAIMS:")
	fmt.Printf("  sub:  %s\n", claims.Subject)
	fmt.Printf("  role: %s\n", claims.Role)
	fmt.Printf("  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
	fmt.Printf("  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}
