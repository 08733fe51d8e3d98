// Package emclient provides the primary entry point for constructing an
// Easemob IM REST client that implements the easemob.Client interface.
//
// It layers configuration, HTTP transport, credential exchange and caching
// on top of the interfaces and types defined in the easemob package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/easemob/pkg/easemob"
//	  "github.com/fivetwenty-io/easemob/pkg/emclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := emclient.New(ctx, &easemob.Config{
//	    OrgName:      "1122161011178276",
//	    AppName:      "testapp",
//	    ClientID:     "YXA6...",
//	    ClientSecret: "YXA6...",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  _, err = cli.Messages().SendText(ctx, easemob.TargetUser, easemob.To("alice"), "hello", nil)
//	  if err != nil { log.Fatal(err) }
//	}
//
// Configuration files
//
// NewFromViper reads the same keys as easemob.LoadConfig. Every key can be
// overridden by an EASEMOB_ environment variable, for example
// EASEMOB_CLIENT_SECRET or EASEMOB_CACHE_NATS_URL.
//
// Static tokens
//
// NewWithToken skips the credential exchange entirely. The token is used until
// the server rejects it.
package emclient
