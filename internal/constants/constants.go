package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are off unless a caller opts in.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Easemob endpoint defaults.
const (
	// DefaultAPIDomain is the public Easemob REST endpoint.
	DefaultAPIDomain = "https://a1.easemob.com"

	// DefaultUserAgent is sent when the caller does not override it.
	DefaultUserAgent = "easemob-go/1.0"
)

// API paths, relative to <domain>/<org>/<app>/.
const (
	APIPathToken     = "token"
	APIPathUsers     = "users"
	APIPathUserToken = "users/token"
	APIPathMessages  = "messages"
	APIPathChatFiles = "chatfiles"
)

// Token lifecycle.
const (
	// TokenRenewalMargin is how long before expiry a credential stops being used.
	TokenRenewalMargin = 60 * time.Second

	// GrantTypeClientCredentials is the grant used for application tokens.
	GrantTypeClientCredentials = "client_credentials"

	// GrantTypePassword is the grant used for per-user tokens.
	GrantTypePassword = "password"
)

// Cache keys and sizes.
const (
	// DefaultClientTokenCacheKey stores the application credential.
	DefaultClientTokenCacheKey = "AuthToken"

	// UserTokenCacheKeyPrefix namespaces per-user access tokens.
	UserTokenCacheKeyPrefix = "UserAccessToken:"

	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultNATSBucket is the JetStream KV bucket used for credentials.
	DefaultNATSBucket = "easemob_credentials"

	// DefaultRedisKeyPrefix namespaces credentials in a shared Redis.
	DefaultRedisKeyPrefix = "easemob:"

	// DefaultLocalCacheTTL bounds how long a local tier trusts a shared entry.
	DefaultLocalCacheTTL = time.Minute
)

// HTTP header names and values.
const (
	HeaderAuthorization  = "Authorization"
	HeaderAccept         = "Accept"
	HeaderContentType    = "Content-Type"
	HeaderUserAgent      = "User-Agent"
	HeaderRestrictAccess = "restrict-access"
	HeaderShareSecret    = "share-secret"

	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)

// Multipart field names.
const (
	// MultipartFileField is the form part that carries an uploaded chat file.
	MultipartFileField = "file"

	// DownloadTempPattern names temporary download files.
	DownloadTempPattern = "easemob_*"
)

// InternalResponseFields are bookkeeping fields removed from decoded responses.
var InternalResponseFields = []string{
	"path",
	"uri",
	"timestamp",
	"organization",
	"application",
	"action",
	"duration",
	"applicationName",
}

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
