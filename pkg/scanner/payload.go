package scanner

import (
	"strings"

	"github.com/mattfenwick/pickupscan/pkg/utils"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrFormatNotRecognized = errors.New("qr payload format not recognized")

const (
	pharmacyShortKey = "p"
	pharmacyLongKey  = "pharmacy"
)

// ParsePayload extracts the pharmacy public id from decoded QR text.  Both full
// links (https://host/?p=abc) and bare query strings (p=abc or pharmacy=abc)
// are accepted; p wins over pharmacy.
func ParsePayload(decodedText string) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("recovered while parsing qr payload %q: %+v", utils.StringPrefix(decodedText, 64), r)
			id, err = "", ErrFormatNotRecognized
		}
	}()

	query := strings.TrimSpace(decodedText)
	if i := strings.Index(query, "?"); i >= 0 {
		query = query[i+1:]
	}
	if i := strings.Index(query, "#"); i >= 0 {
		query = query[:i]
	}
	if query == "" {
		return "", ErrFormatNotRecognized
	}

	params := searchParams(query)
	for _, key := range []string{pharmacyShortKey, pharmacyLongKey} {
		if v := params[key]; v != "" {
			return v, nil
		}
	}
	return "", ErrFormatNotRecognized
}

// searchParams reads a urlencoded query the way browsers do: pairs split on
// "&" only, the first value of a key wins, "+" is a space, and percent
// sequences that do not decode are kept as written.
func searchParams(query string) map[string]string {
	params := map[string]string{}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = decodeComponent(key)
		if _, ok := params[key]; ok {
			continue
		}
		params[key] = decodeComponent(value)
	}
	return params
}

func decodeComponent(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			out.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		out.WriteByte(s[i])
	}
	return out.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
