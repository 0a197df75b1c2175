package notify

import (
	"fmt"
	"html"
	"strings"

	"pvc/entities"
)

// Format renders ev as Telegram HTML.
func Format(ev Event) string {
	var b strings.Builder
	switch ev.Kind {
	case KindTaskCreated:
		b.WriteString("🆕 <b>Нова задача!</b>\n\n")
	case KindReworkRequested:
		b.WriteString("⚠️ <b>Запит переробки</b>\n\n")
	case KindReworkApproved:
		b.WriteString("✅ <b>Переробку підтверджено!</b>\n\n")
	case KindTaskCompleted:
		b.WriteString("✅ <b>Задача виконана!</b>\n\n")
	case KindUserPending:
		b.WriteString("👤 <b>Новий користувач очікує підтвердження</b>\n\n")
		if u := ev.Subject; u != nil {
			fmt.Fprintf(&b, "%s (tg %s)", html.EscapeString(u.DisplayName()), html.EscapeString(u.TelegramID))
		}
		return b.String()
	default:
		fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(string(ev.Kind)))
	}

	if t := ev.Task; t != nil {
		writeTask(&b, t, ev.Type)
		if ev.Kind == KindTaskCreated && t.Description != nil && *t.Description != "" {
			fmt.Fprintf(&b, "\n📝 %s", html.EscapeString(*t.Description))
		}
		if ev.Kind == KindReworkRequested && t.ReworkComment != nil {
			fmt.Fprintf(&b, "\n📝 %s", html.EscapeString(*t.ReworkComment))
		}
		if ev.Kind == KindTaskCompleted && t.LateComment != nil {
			fmt.Fprintf(&b, "\n⚠️ Прострочка: %s", html.EscapeString(*t.LateComment))
		}
	}
	if ev.Actor != nil && (ev.Kind == KindReworkRequested || ev.Kind == KindTaskCompleted) {
		fmt.Fprintf(&b, "\n👷 %s", html.EscapeString(ev.Actor.DisplayName()))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeTask(b *strings.Builder, t *entities.Task, typ *entities.ConstructType) {
	fmt.Fprintf(b, "📋 #%d · Партія: <b>%s</b> / Комірка: <b>%s</b>\n", t.ID, html.EscapeString(t.Batch), html.EscapeString(t.Cell))
	if typ != nil {
		fmt.Fprintf(b, "🏗 Тип: <b>%s — %s</b>\n", html.EscapeString(typ.Code), html.EscapeString(typ.Label))
	}
	fmt.Fprintf(b, "🔢 %d шт.", t.QtyItems)
	if t.ImpostsPerItem > 0 {
		fmt.Fprintf(b, " · %d імп.", t.ImpostsPerItem)
	}
	fmt.Fprintf(b, " · 💎 <b>%d СП</b>\n", t.SP())
	fmt.Fprintf(b, "📅 %s\n", t.PlannedDate)
}
