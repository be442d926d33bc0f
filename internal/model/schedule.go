package model

import "time"

// Schedule is the per-screen, per-date record under which showtimes are
// grouped.  A schedule is created lazily on the first booking for a
// screen/date combination (or by seeding) and is never deleted in the
// normal flow.
//
// Fields:
//  ID        – primary key identifier.
//  ScreenID  – screen this schedule belongs to.
//  ShowDate  – calendar date in "2006-01-02" form (UTC).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Schedule struct {
	ID        uint64    // schedules.id
	ScreenID  uint64    // schedules.screen_id
	ShowDate  string    // schedules.show_date ("YYYY-MM-DD")
	CreatedAt time.Time // schedules.created_at
	UpdatedAt time.Time // schedules.updated_at
}

// Showtime is one scheduled screening within a schedule.  Each showtime
// owns an independent seat grid: the same physical seat recurs as a
// separate ShowtimeSeat row per showtime.
//
// Fields:
//  ID         – primary key identifier.
//  ScheduleID – schedule that contains this showtime.
//  MovieID    – movie being screened.
//  MovieTitle – denormalised title for listings and events.
//  ShowTime   – start time of day in "15:04" form.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Showtime struct {
	ID         uint64    // showtimes.id
	ScheduleID uint64    // showtimes.schedule_id
	MovieID    uint64    // showtimes.movie_id
	MovieTitle string    // showtimes.movie_title
	ShowTime   string    // showtimes.show_time ("HH:MM")
	CreatedAt  time.Time // showtimes.created_at
	UpdatedAt  time.Time // showtimes.updated_at
}
