package cli

import (
	"fmt"
	"io"
	"time"

	"the-work-standard/internal/client/attendance"
	"the-work-standard/internal/client/session"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyles = map[attendance.Status]lipgloss.Style{
		attendance.StatusPresent:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		attendance.StatusLate:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		attendance.StatusEarlyLeave: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func statusLabel(s attendance.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return mutedStyle.Render(s.Label())
	}
	return style.Render(s.Label())
}

func stateLabel(s attendance.State) string {
	switch s {
	case attendance.CheckedIn:
		return "근무 중"
	case attendance.CheckedOut:
		return "퇴근"
	default:
		return "출근 전"
	}
}

func printIdentity(w io.Writer, v session.View) {
	if v.Session == nil {
		fmt.Fprintln(w, mutedStyle.Render("로그인되어 있지 않습니다."))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(v.Session.Email))
	if v.Profile == nil {
		fmt.Fprintln(w, mutedStyle.Render("프로필이 아직 생성되지 않았습니다."))
		return
	}
	fmt.Fprintf(w, "이름: %s\n", v.Profile.Name)
	fmt.Fprintf(w, "권한: %s\n", v.Profile.Role)
	if v.Profile.CompanyName != "" {
		fmt.Fprintf(w, "회사: %s\n", v.Profile.CompanyName)
	}
	if !v.Session.EmailVerified {
		fmt.Fprintln(w, mutedStyle.Render("이메일 확인이 필요합니다."))
	}
}

func clockTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04:05")
}

func minutes(m *int) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%d시간 %d분", *m/60, *m%60)
}
