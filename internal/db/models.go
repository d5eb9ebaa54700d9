package db

type Book struct {
	ID   int64
	Data string
}

type Rank struct {
	IDBook       int64
	Date         string
	Category     string
	Rank         int64
	RankLastWeek int64
	WeeksOnList  int64
}

type Review struct {
	IDBook   int64
	IDReview int64
	Stars    float64
	Title    string
	Text     string
	Date     string
}
