package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

const markdownV2Special = "\\_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes every character Telegram reserves in MarkdownV2.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatAlert renders the alert as a MarkdownV2 message.
func FormatAlert(a domain.Alert) string {
	var b strings.Builder
	b.WriteString("🚨 *Boş Koltuk Bulundu\\!*\n\n")
	fmt.Fprintf(&b, "*Hat:* %s\n", EscapeMarkdownV2(a.Route.String()))
	fmt.Fprintf(&b, "*Tarih:* %s\n\n", EscapeMarkdownV2(a.Date.In(time.UTC).Format("02.01.2006")))

	if len(a.Coaches) == 1 {
		c := a.Coaches[0]
		fmt.Fprintf(&b, "*Tren:* %s\n", EscapeMarkdownV2(c.TrainID))
		fmt.Fprintf(&b, "*Kalkış:* %s\n", EscapeMarkdownV2(c.DepartureTime.String()))
		fmt.Fprintf(&b, "*Vagon:* %s\n", EscapeMarkdownV2(c.Name))
		fmt.Fprintf(&b, "*Boş Koltuk:* %d%s", c.TotalSeats, cabinSuffix(c))
		return b.String()
	}

	b.WriteString("*Yeni Boş Koltuklar:*\n")
	for _, c := range a.Coaches {
		fmt.Fprintf(&b, "• *%s* \\(%s, %s\\): %d koltuk%s\n",
			EscapeMarkdownV2(c.Name),
			EscapeMarkdownV2(c.TrainID),
			EscapeMarkdownV2(c.DepartureTime.String()),
			c.TotalSeats,
			cabinSuffix(c))
	}
	fmt.Fprintf(&b, "\n*Toplam:* %d koltuk", a.TotalSeats())
	return b.String()
}

func cabinSuffix(c domain.Coach) string {
	if len(c.Cabins) < 2 {
		return ""
	}
	parts := make([]string, 0, len(c.Cabins))
	for _, cabin := range c.Cabins {
		parts = append(parts, fmt.Sprintf("%s %d", cabin.Code, cabin.Seats))
	}
	return " \\(" + EscapeMarkdownV2(strings.Join(parts, ", ")) + "\\)"
}
