package clock

import "time"

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func Real() Clock { return realClock{} }

// Fixed はテスト用の固定時計
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
