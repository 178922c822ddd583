package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// computeDigest computes HMAC-SHA256 over the exact raw request body. The
// body must never be re-serialized before this point: any re-encoding breaks
// the digest.
func computeDigest(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// VerifySignature checks a header-supplied signature against the expected
// digest using a constant-time comparison.
func VerifySignature(secret string, body []byte, provided string, enc SignatureEncoding) bool {
	if secret == "" || provided == "" {
		return false
	}

	var supplied []byte
	var err error
	switch enc {
	case EncodingBase64:
		supplied, err = base64.StdEncoding.DecodeString(strings.TrimSpace(provided))
	case EncodingHex:
		supplied, err = hex.DecodeString(strings.TrimSpace(provided))
	default:
		return false
	}
	if err != nil {
		return false
	}

	return hmac.Equal(computeDigest(secret, body), supplied)
}

// SignBody produces the signature a platform would send, in the adapter's
// encoding. Used by tests and the outbound sync client.
func SignBody(secret string, body []byte, enc SignatureEncoding) (string, error) {
	digest := computeDigest(secret, body)
	switch enc {
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(digest), nil
	case EncodingHex:
		return hex.EncodeToString(digest), nil
	}
	return "", fmt.Errorf("unknown signature encoding %q", enc)
}

func parseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}
