package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go-intents/internal/middleware"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "generate-jwt",
		Usage: "issue an operator token for the solution submission API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "HS256 signing secret", EnvVars: []string{"JWT_SECRET"}, Required: true},
			&cli.StringFlag{Name: "issuer", Usage: "token issuer", Value: "go-intents"},
			&cli.StringFlag{Name: "operator", Usage: "operator name placed in the token", Required: true},
			&cli.StringSliceFlag{Name: "network", Usage: "network the token may submit to (repeatable, default all)"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour},
		},
		Action: generate,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(c *cli.Context) error {
	networks := c.StringSlice("network")
	token, err := middleware.GenerateToken(c.String("secret"), c.String("issuer"), c.String("operator"), networks, c.Duration("ttl"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("error generating token: %v", err), 1)
	}

	scope := "all networks"
	if len(networks) > 0 {
		scope = strings.Join(networks, ", ")
	}

	fmt.Println("============================================================")
	fmt.Println("Operator Token")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Printf("  Operator: %s\n", c.String("operator"))
	fmt.Printf("  Networks: %s\n", scope)
	fmt.Printf("  Expires:  %s\n", time.Now().Add(c.Duration("ttl")).Format(time.RFC3339))
	fmt.Println()
	fmt.Printf("curl -H 'Authorization: Bearer %s' ...\n", token)
	return nil
}
