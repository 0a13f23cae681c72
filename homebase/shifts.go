package homebase

import (
	"context"
	"time"

	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/tips"
)

// Shifts fetches the period's timecards, resolves each employee's name and
// wage, and converts instants to the business location.
//
// A malformed clock-in or clock-out is logged and treated as absent, which
// leaves the shift open. A timecard that still cannot become a valid shift
// is logged and dropped. Vendor failures are returned.
func (c *Client) Shifts(ctx context.Context, period generic.Period) ([]tips.Shift, error) {
	timecards, err := c.Timecards(ctx, period)
	if err != nil {
		return nil, err
	}

	employees := make(map[ID]Employee)
	shifts := make([]tips.Shift, 0, len(timecards))
	for _, tc := range timecards {
		emp, ok := employees[tc.UserID]
		if !ok {
			emp, err = c.Employee(ctx, tc.UserID)
			if err != nil {
				return nil, err
			}
			employees[tc.UserID] = emp
		}

		s, err := tips.NewShift(
			emp.FirstName,
			emp.LastName,
			tc.UserID.String(),
			emp.Job.WageRate,
			c.instant(tc, "clock_in", tc.ClockIn),
			c.instant(tc, "clock_out", tc.ClockOut),
			tc.ID.String(),
		)
		if err != nil {
			c.logger.Warn("dropping timecard", "timecard_id", tc.ID.String(), "error", err)
			continue
		}
		shifts = append(shifts, s)
	}

	c.logger.Info("fetched timecards", "period", period.String(), "timecards", len(timecards), "shifts", len(shifts))
	return shifts, nil
}

func (c *Client) instant(tc Timecard, field string, raw *string) time.Time {
	if raw == nil {
		return time.Time{}
	}
	t, err := generic.ParseTimestamp(*raw, c.location)
	if err != nil {
		c.logger.Warn("unable to parse time string",
			"timecard_id", tc.ID.String(), "field", field, "value", *raw)
		return time.Time{}
	}
	return t
}
