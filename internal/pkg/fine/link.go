package fine

import (
	"regexp"
	"strings"

	e "efb/internal/errors"

	"github.com/PuerkitoBio/goquery"
)

const domainKeyword = "전자금융업"

var (
	downloadEndpoint = regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(AllowedPathPrefix) + `\?.+`)
	spreadsheetName  = regexp.MustCompile(`(?is)^.*` + domainKeyword + `.*\.xlsx`)
)

// Link is a validated spreadsheet download target.
type Link struct {
	URL      string
	FileName string
}

// ExtractDownloadLink finds the 전자금융업 spreadsheet anchor on the
// announcement page and returns an absolute URL on BaseURL. It never panics on
// malformed input: every failure is ErrLinkNotFound or ErrUntrustedDownloadPath.
func ExtractDownloadLink(html string) (Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Link{}, linkNotFound(err)
	}

	var path, name string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		h, _ := a.Attr("href")

		// the portal double-encodes query separators, so one &amp; survives the
		// HTML parser's own entity decoding
		p := strings.ReplaceAll(strings.TrimSpace(h), "&amp;", "&")
		if !downloadEndpoint.MatchString(p) {
			return true
		}

		n, ok := spreadsheetFileName(a.Text())
		if !ok {
			return true
		}

		path, name = p, n
		return false
	})

	if path == "" {
		return Link{}, linkNotFound(nil)
	}

	if !strings.HasPrefix(path, AllowedPathPrefix+"?") {
		return Link{}, e.New(e.ErrUntrustedDownloadPath,
			"추출된 다운로드 경로가 허용된 패턴과 일치하지 않습니다. 페이지 구조가 변경되었을 수 있습니다.")
	}

	return Link{URL: BaseURL + path, FileName: name}, nil
}

// spreadsheetFileName returns the anchor text up to its last ".xlsx", so
// trailing size hints such as "(52KB)" are dropped.
func spreadsheetFileName(text string) (string, bool) {
	m := spreadsheetName.FindString(strings.TrimSpace(text))
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

func linkNotFound(cause error) error {
	return e.Wrap(e.ErrLinkNotFound,
		"FINE 포털 페이지에서 엑셀 파일 다운로드 링크를 찾을 수 없습니다. 페이지 구조가 변경되었을 수 있습니다.", cause)
}
