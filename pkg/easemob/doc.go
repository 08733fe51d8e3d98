// Package easemob defines the public types of the Easemob IM REST client:
// configuration, the Client interfaces, message variants, recipients, errors
// and the credential cache.
//
// Construct a client with emclient.New:
//
//	cfg := &easemob.Config{
//	  OrgName:      "demo-org",
//	  AppName:      "demo-app",
//	  ClientID:     "YXA6...",
//	  ClientSecret: "YXA6...",
//	}
//
//	cli, err := emclient.New(ctx, cfg)
//	if err != nil { log.Fatal(err) }
//	defer cli.Close()
//
//	res, err := cli.Messages().SendText(ctx, easemob.TargetUser, easemob.To("alice"), "hello", nil)
//
// # Messages
//
// A Message is one of TextMessage, ImageMessage, AudioMessage, VideoMessage,
// LocationMessage, CommandMessage or CustomMessage. Media messages reference a
// FileRef returned by Files().Upload. Invalid targets and messages fail with a
// *ValidationError before any request is made.
//
// A single recipient (To) yields a SendResult with Recipient and Result set.
// A list (ToMany) yields Results keyed by recipient, with Missing listing any
// recipient the server did not report on.
//
// # Errors
//
// Non-2xx responses and transport failures are *APIError; StatusCode is 0 when
// no response arrived. A failed credential exchange is an *AuthError wrapping
// the *APIError. Use IsNotFound, IsUnauthorized, IsValidationError and
// StatusCode to classify errors.
//
// # Caching
//
// Credentials are cached in memory by default. Set Config.Cache to a NATS
// JetStream KV configuration to share them between processes.
package easemob
