package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// qrCodeDataURL renders the target URL as a PNG QR code data URL.
func qrCodeDataURL(target string) (string, error) {
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// GetQRCode returns the poll's QR code data URL
func (h *Handler) GetQRCode(c *gin.Context) {
	poll, err := h.store.Snapshot(c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_code_url": poll.QRCodeURL})
}

// ExportCSV renders a poll snapshot as CSV. Export always shows real
// tallies regardless of the hide-results setting.
func (h *Handler) ExportCSV(c *gin.Context) {
	poll, err := h.store.Snapshot(c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question,%q\n", poll.Question)
	b.WriteString("Option,Votes,Percentage\n")

	total := poll.TotalVotes
	if total == 0 {
		total = 1
	}
	for _, option := range poll.Options {
		percentage := float64(option.Votes) / float64(total) * 100
		fmt.Fprintf(&b, "%q,%d,%.1f%%\n", option.Text, option.Votes, percentage)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=poll_%s.csv", poll.ID))
	c.Data(http.StatusOK, "text/csv", []byte(b.String()))
}

// EmbedPoll renders a self-contained HTML view of the poll for iframes.
// Question and option texts were sanitized at creation, so they are safe
// to interpolate directly.
func (h *Handler) EmbedPoll(c *gin.Context) {
	poll, err := h.store.Snapshot(c.Param("id"))
	if err != nil {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("<html><body>Poll not found</body></html>"))
		return
	}

	var options strings.Builder
	for _, option := range poll.Options {
		fmt.Fprintf(&options, `
            <div class="option">
                <div>%s</div>
                <div class="votes">%d votes</div>
            </div>`, option.Text, option.Votes)
	}

	page := fmt.Sprintf(embedTemplate, poll.Question, poll.Question, options.String())
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// EmbedScript serves the JavaScript loader that injects the embed iframe.
func (h *Handler) EmbedScript(c *gin.Context) {
	script := fmt.Sprintf(`
(function() {
    var pollId = document.currentScript.getAttribute('data-poll-id');
    var iframe = document.createElement('iframe');
    iframe.src = 'http://%s/embed/' + pollId;
    iframe.style.width = '100%%';
    iframe.style.height = '400px';
    iframe.style.border = 'none';
    iframe.style.borderRadius = '12px';
    document.currentScript.parentNode.insertBefore(iframe, document.currentScript);
})();
`, c.Request.Host)
	c.Data(http.StatusOK, "application/javascript", []byte(script))
}

const embedTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            padding: 20px;
            background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%);
        }
        .poll-container {
            background: white;
            border-radius: 12px;
            padding: 24px;
            box-shadow: 0 4px 6px rgba(0,0,0,0.1);
        }
        .question {
            font-size: 20px;
            font-weight: bold;
            margin-bottom: 20px;
            color: #1a202c;
        }
        .option {
            background: #f7fafc;
            border: 2px solid #e2e8f0;
            border-radius: 8px;
            padding: 12px 16px;
            margin-bottom: 10px;
        }
        .votes {
            color: #718096;
            font-size: 14px;
            margin-top: 4px;
        }
    </style>
</head>
<body>
    <div class="poll-container">
        <div class="question">%s</div>%s
    </div>
</body>
</html>
`
