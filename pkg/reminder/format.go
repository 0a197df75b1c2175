package reminder

import (
	"fmt"
	"html"
	"strings"
	"time"

	"pvc/entities"
	"pvc/pkg/effort"
	statsSvc "pvc/pkg/stats/service"
)

func FormatReport(s *statsSvc.Summary) string {
	var b strings.Builder
	date := s.Date
	if d, err := time.Parse(effort.DayLayout, s.Date); err == nil {
		date = d.Format("02.01.2006")
	}
	fmt.Fprintf(&b, "📊 <b>Звіт на %s</b>\n\n", date)
	fmt.Fprintf(&b, "📋 План: <b>%d</b> задач · <b>%d</b> СП\n", s.PlanCount, s.PlanSP)
	fmt.Fprintf(&b, "✅ Виконано: <b>%d</b> задач · <b>%d</b> СП · <b>%d%%</b>\n", s.DoneCount, s.DoneSP, s.Percent)
	if s.ReworkCount > 0 {
		fmt.Fprintf(&b, "\n⚠️ <b>Переробка (%d):</b>\n", s.ReworkCount)
		briefs(&b, s.Rework)
	}
	if s.OverdueCount > 0 {
		fmt.Fprintf(&b, "\n🔴 <b>Прострочено (%d):</b>\n", s.OverdueCount)
		briefs(&b, s.Overdue)
	}
	return b.String()
}

func briefs(b *strings.Builder, list []statsSvc.TaskBrief) {
	for _, t := range list {
		fmt.Fprintf(b, "  #%d %s/%s · %s\n", t.ID, html.EscapeString(t.Batch), html.EscapeString(t.Cell), html.EscapeString(t.TypeCode))
	}
}

func FormatAssigneeDigest(tasks []entities.Task, types map[uint]entities.ConstructType) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		label := types[t.TypeID].Label
		if label == "" {
			label = fmt.Sprintf("type %d", t.TypeID)
		}
		lines[i] = fmt.Sprintf("• #%d %s/%s (%s)", t.ID, html.EscapeString(t.Batch), html.EscapeString(t.Cell), html.EscapeString(label))
	}
	return fmt.Sprintf("⚠️ <b>Прострочені задачі (%d)</b>\n\n%s\n\nБудь ласка, завершіть або повідомте адміна.",
		len(tasks), strings.Join(lines, "\n"))
}

// FormatAdminDigest lists every overdue task; names maps assignee ids.
func FormatAdminDigest(tasks []entities.Task, names map[uint]string) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		who := " (не призначено)"
		if t.AssigneeUserID != nil {
			who = fmt.Sprintf(" (%s)", html.EscapeString(names[*t.AssigneeUserID]))
		}
		lines[i] = fmt.Sprintf("• #%d %s/%s — %s%s", t.ID, html.EscapeString(t.Batch), html.EscapeString(t.Cell), t.Status, who)
	}
	return fmt.Sprintf("⚠️ <b>Прострочені задачі: %d</b>\n\n%s", len(tasks), strings.Join(lines, "\n"))
}
