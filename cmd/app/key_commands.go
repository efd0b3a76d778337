package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/passvault/cmd/app/commands"
	"github.com/allisson/passvault/internal/app"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Password (omit to read the first line of stdin)",
	}
}

func getKeyCommands() []*cli.Command {
	defaults := cryptoDomain.DefaultPasswordOptions()

	return []*cli.Command{
		{
			Name:  "generate-password",
			Usage: "Generate random passwords",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "length", Aliases: []string{"l"}, Value: defaults.Length, Usage: "Password length"},
				&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "Number of passwords"},
				&cli.BoolFlag{Name: "uppercase", Value: defaults.Uppercase, Usage: "Include A-Z"},
				&cli.BoolFlag{Name: "lowercase", Value: defaults.Lowercase, Usage: "Include a-z"},
				&cli.BoolFlag{Name: "digits", Value: defaults.Digits, Usage: "Include 0-9"},
				&cli.BoolFlag{Name: "symbols", Value: defaults.Symbols, Usage: "Include punctuation"},
				&cli.BoolFlag{Name: "exclude-ambiguous", Usage: "Skip look-alike characters such as 0/O and 1/l"},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				opts := cryptoDomain.PasswordOptions{
					Length:           int(cmd.Int("length")),
					Uppercase:        cmd.Bool("uppercase"),
					Lowercase:        cmd.Bool("lowercase"),
					Digits:           cmd.Bool("digits"),
					Symbols:          cmd.Bool("symbols"),
					ExcludeAmbiguous: cmd.Bool("exclude-ambiguous"),
				}
				return commands.RunGeneratePassword(
					c.PasswordGenerator(),
					commands.DefaultIO().Writer,
					opts,
					int(cmd.Int("count")),
					cmd.String("format"),
				)
			}),
		},
		{
			Name:  "derive-key",
			Usage: "Derive the vault key (X-Vault-Key) from a master password",
			Flags: []cli.Flag{
				passwordFlag(),
				&cli.StringFlag{
					Name:    "salt",
					Aliases: []string{"s"},
					Usage:   "Base64 salt (omit to generate one)",
				},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				return commands.RunDeriveKey(
					c.KeyDeriver(),
					commands.DefaultIO(),
					cmd.String("password"),
					cmd.String("salt"),
					cmd.String("format"),
				)
			}),
		},
		{
			Name:  "hash-password",
			Usage: "Hash a password with Argon2id",
			Flags: []cli.Flag{passwordFlag()},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				return commands.RunHashPassword(c.PasswordHasher(), commands.DefaultIO(), cmd.String("password"))
			}),
		},
		{
			Name:  "verify-password",
			Usage: "Verify a password against an Argon2id hash",
			Flags: []cli.Flag{
				passwordFlag(),
				&cli.StringFlag{Name: "hash", Required: true, Usage: "Encoded Argon2id hash"},
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				return commands.RunVerifyPassword(
					c.PasswordHasher(),
					c.Logger(),
					commands.DefaultIO(),
					cmd.String("password"),
					cmd.String("hash"),
				)
			}),
		},
		{
			Name:  "create-jwt-secret",
			Usage: "Generate a token signing secret, optionally wrapped with KMS",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-provider",
					Usage: "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				return commands.RunCreateJWTSecret(
					ctx,
					c.KMSService(),
					c.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			}),
		},
		{
			Name:  "issue-token",
			Usage: "Sign a development identity token for a user",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "user-id", Aliases: []string{"u"}, Required: true, Usage: "User ID (UUID)"},
				&cli.DurationFlag{Name: "ttl", Value: time.Hour, Usage: "Token lifetime"},
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *app.Container) error {
				signer, err := c.TokenSigner(ctx)
				if err != nil {
					return err
				}
				return commands.RunIssueToken(
					signer,
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.Duration("ttl"),
				)
			}),
		},
	}
}
