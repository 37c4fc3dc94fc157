// The registry_client command is the operator CLI for the land title
// registry: creating titles, producing and verifying owner signatures,
// completing registrations, and working with the document archive.
package main

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"github.com/landreg/title-registry-backend/api"
	"github.com/landreg/title-registry-backend/api/clients"
	"github.com/landreg/title-registry-backend/interfaces"
	"github.com/landreg/title-registry-backend/sigverify"
)

var flagServerAddr = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "Registry server address",
}
var flagPrivateKey = &cli.StringFlag{
	Name:    "privkey",
	EnvVars: []string{"REGISTRY_PRIVKEY"},
	Usage:   "hex private key for signing requests",
}
var flagPassphrase = &cli.StringFlag{
	Name:    "passphrase",
	EnvVars: []string{"REGISTRY_PASSPHRASE"},
	Usage:   "passphrase to derive a development key from (alternative to --privkey)",
}
var flagKeySalt = &cli.StringFlag{
	Name:  "key-salt",
	Value: "title-registry-dev",
	Usage: "salt for passphrase key derivation",
}
var flagTitleID = &cli.StringFlag{
	Name:     "title-id",
	Required: true,
	Usage:    "12-character alphanumeric title code",
}

func main() {
	app := &cli.App{
		Name:  "registry client",
		Usage: "Operator CLI for the land title registry",
		Flags: []cli.Flag{
			flagServerAddr,
			flagPrivateKey,
			flagPassphrase,
			flagKeySalt,
		},
		Commands: []*cli.Command{
			{
				Name:  "add-title",
				Usage: "Create a title record (administrator only)",
				Flags: []cli.Flag{
					flagTitleID,
					&cli.Uint64Flag{Name: "size", Required: true, Usage: "parcel size in square feet"},
					&cli.StringFlag{Name: "location", Required: true, Usage: "parcel location"},
					&cli.StringFlag{Name: "image", Usage: "parcel image URI or archive content ID"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, true)
					if err != nil {
						return err
					}
					resp, err := c.AddTitle(&api.AddTitleRequest{
						ID:       cCtx.String(flagTitleID.Name),
						Size:     cCtx.Uint64("size"),
						Location: cCtx.String("location"),
						Image:    cCtx.String("image"),
					})
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "sign",
				Usage: "Produce the owner signature for a title (offline)",
				Flags: []cli.Flag{
					flagTitleID,
					&cli.StringFlag{Name: "registry-identity", Required: true, Usage: "20-byte hex registry identity"},
				},
				Action: func(cCtx *cli.Context) error {
					key, err := signingKey(cCtx)
					if err != nil {
						return err
					}
					registryIdentity, err := interfaces.NewIdentityFromHex(cCtx.String("registry-identity"))
					if err != nil {
						return fmt.Errorf("invalid registry identity: %w", err)
					}
					titleID, err := interfaces.NewTitleID(cCtx.String(flagTitleID.Name))
					if err != nil {
						return err
					}

					digest := sigverify.CanonicalMessage(sigverify.IdentityOf(key), registryIdentity, titleID)
					sig, err := sigverify.Sign(digest, key)
					if err != nil {
						return err
					}
					return printJSON(map[string]string{
						"owner":     sigverify.IdentityOf(key).String(),
						"signature": "0x" + hex.EncodeToString(sig),
					})
				},
			},
			{
				Name:  "process-signature",
				Usage: "Recover the signer of an owner signature",
				Flags: []cli.Flag{
					flagTitleID,
					&cli.StringFlag{Name: "owner", Required: true, Usage: "claimed owner hex address"},
					&cli.StringFlag{Name: "signature", Required: true, Usage: "hex signature"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					resp, err := c.ProcessSignature(&api.ProcessSignatureRequest{
						Owner:     cCtx.String("owner"),
						TitleID:   cCtx.String(flagTitleID.Name),
						Signature: cCtx.String("signature"),
					})
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "register",
				Usage: "Complete registration of a title (owner only)",
				Flags: []cli.Flag{
					flagTitleID,
					&cli.Uint64Flag{Name: "index", Required: true, Usage: "title index"},
					&cli.StringFlag{Name: "signature", Required: true, Usage: "owner hex signature over the canonical message"},
					&cli.StringFlag{Name: "payment", Required: true, Usage: "payment in wei"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, true)
					if err != nil {
						return err
					}
					err = c.RegisterTitle(cCtx.Uint64("index"), &api.RegisterTitleRequest{
						TitleID:   cCtx.String(flagTitleID.Name),
						Signature: cCtx.String("signature"),
						Payment:   cCtx.String("payment"),
					})
					if err != nil {
						return err
					}
					fmt.Println("registered")
					return nil
				},
			},
			{
				Name:  "fetch",
				Usage: "Fetch a title record by index",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "index", Required: true, Usage: "title index"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					title, err := c.FetchTitle(cCtx.Uint64("index"))
					if err != nil {
						return err
					}
					return printJSON(title)
				},
			},
			{
				Name:  "events",
				Usage: "Print the ordered event log",
				Action: func(cCtx *cli.Context) error {
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					events, err := c.Events()
					if err != nil {
						return err
					}
					return printJSON(events)
				},
			},
			{
				Name:  "upload-document",
				Usage: "Store a parcel image or deed scan in the archive",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Required: true, Usage: "document kind: 'image' or 'deed'"},
					&cli.StringFlag{Name: "file", Required: true, Usage: "path to the document"},
				},
				Action: func(cCtx *cli.Context) error {
					contentType, err := interfaces.ParseContentType(cCtx.String("kind"))
					if err != nil {
						return err
					}
					data, err := os.ReadFile(cCtx.String("file"))
					if err != nil {
						return err
					}
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					resp, err := c.UploadDocument(contentType, data)
					if err != nil {
						return err
					}
					return printJSON(resp)
				},
			},
			{
				Name:  "fetch-document",
				Usage: "Fetch an archived document to stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Required: true, Usage: "document kind: 'image' or 'deed'"},
					&cli.StringFlag{Name: "content-id", Required: true, Usage: "hex content ID"},
				},
				Action: func(cCtx *cli.Context) error {
					contentType, err := interfaces.ParseContentType(cCtx.String("kind"))
					if err != nil {
						return err
					}
					id, err := interfaces.NewContentIDFromHex(cCtx.String("content-id"))
					if err != nil {
						return err
					}
					c, err := newClient(cCtx, false)
					if err != nil {
						return err
					}
					data, err := c.FetchDocument(contentType, id)
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(data)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// signingKey resolves the caller key from --privkey or --passphrase.
func signingKey(cCtx *cli.Context) (*ecdsa.PrivateKey, error) {
	if keyHex := cCtx.String(flagPrivateKey.Name); keyHex != "" {
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return key, nil
	}
	if passphrase := cCtx.String(flagPassphrase.Name); passphrase != "" {
		return sigverify.DeriveDevKey(passphrase, cCtx.String(flagKeySalt.Name))
	}
	return nil, fmt.Errorf("either --privkey or --passphrase is required")
}

func newClient(cCtx *cli.Context, needsKey bool) (*clients.RegistryClient, error) {
	c := &clients.RegistryClient{ServerAddr: cCtx.String(flagServerAddr.Name)}

	key, err := signingKey(cCtx)
	if err != nil {
		if needsKey {
			return nil, err
		}
		return c, nil
	}
	c.Key = key
	return c, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
