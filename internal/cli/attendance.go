package cli

import (
	"fmt"
	"strings"
	"time"

	"the-work-standard/internal/client/attendance"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's attendance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			loc, err := time.LoadLocation(a.cfg.Timezone)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			snap := a.ws.Attendance.Snapshot()
			fmt.Fprintln(out, titleStyle.Render(stateLabel(snap.State)))
			if snap.Record == nil {
				fmt.Fprintln(out, mutedStyle.Render("오늘 출근 기록이 없습니다."))
				return nil
			}

			rec := snap.Record
			fmt.Fprintf(out, "날짜: %s\n", rec.Date)
			fmt.Fprintf(out, "출근: %s\n", clockTime(rec.CheckInTime, loc))
			fmt.Fprintf(out, "퇴근: %s\n", clockTime(rec.CheckOutTime, loc))
			fmt.Fprintf(out, "상태: %s\n", statusLabel(rec.Status))
			fmt.Fprintf(out, "근무 시간: %s\n", minutes(rec.WorkDuration))
			if snap.Notes != "" {
				fmt.Fprintf(out, "메모: %s\n", snap.Notes)
			}
			if snap.State == attendance.CheckedIn {
				d := a.ws.Attendance.Display()
				fmt.Fprintf(out, "경과: %s (%.0f%%), 남은 시간: %s\n",
					attendance.FormatDuration(d.Elapsed), d.Progress*100, attendance.FormatDuration(d.Remaining))
			}
			return nil
		},
	}
}

func newCheckinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Record today's check-in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			res := a.ws.Attendance.CheckIn(ctx)
			if err := resultError(res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newCheckoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Record today's check-out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			res := a.ws.Attendance.CheckOut(ctx)
			if err := resultError(res); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			if rec := a.ws.Attendance.Snapshot().Record; rec != nil {
				fmt.Fprintf(out, "상태: %s, 근무 시간: %s\n", statusLabel(rec.Status), minutes(rec.WorkDuration))
			}
			return nil
		},
	}
}

func newNotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "notes <text>",
		Short:   "Replace today's notes",
		Args:    cobra.MinimumNArgs(1),
		Example: `  workdesk notes "외근 (고객사 미팅)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}
			res := a.ws.Attendance.UpdateNotes(ctx, strings.Join(args, " "))
			if err := resultError(res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show live work progress until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("근무 현황 (Ctrl+C로 종료)"))
			a.ws.Attendance.RunTicker(ctx, a.cfg.TickInterval, func(s attendance.Snapshot, d attendance.Display) {
				if s.State != attendance.CheckedIn {
					fmt.Fprintf(out, "\r%s%s", stateLabel(s.State), strings.Repeat(" ", 40))
					return
				}
				fmt.Fprintf(out, "\r경과 %s  진행률 %3.0f%%  남은 시간 %s",
					attendance.FormatDuration(d.Elapsed), d.Progress*100, attendance.FormatDuration(d.Remaining))
			})
			fmt.Fprintln(out)
			return nil
		},
	}
}
