package notifications

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary = "#1D4ED8"
	themeBody    = "#F3F4F6"
	themeText    = "#1F2937"
)

// EmailLayout wraps content in the shared notification shell.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>LoadPlan</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
    .content p { margin: 0 0 16px 0; font-size: 15px; line-height: 1.6; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 10px 28px; border-radius: 6px; text-decoration: none; font-weight: 600; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 32px 0;">
        <table role="presentation" width="560" cellspacing="0" cellpadding="0" style="background:#ffffff; border-radius: 8px;">
          <tr><td class="content" style="padding: 32px 40px;">%s</td></tr>
          <tr><td style="padding: 0 40px 24px 40px; font-size: 12px; color: #6B7280;">© %d LoadPlan</td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, themeBody, themeText, themePrimary, contentHTML, time.Now().Year())
}

func demandContent(n DemandNotice, pickup, dropoff, link string) string {
	return fmt.Sprintf(`
    <h2>New demand needs capacity</h2>
    <p><strong>%s</strong> added a forecast for <strong>%s</strong>.</p>
    <p>Route: <strong>%s → %s</strong><br>Loads: <strong>%d</strong></p>
    <p><a href="%s" class="button">Review supply plan</a></p>
`, html.EscapeString(n.ActorName), html.EscapeString(n.ClientName),
		html.EscapeString(pickup), html.EscapeString(dropoff), n.TotalQty, html.EscapeString(link))
}
