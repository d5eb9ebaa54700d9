package normalize

import "encoding/json"

// BookData is the entity document, the id lives next to it.
type BookData struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	ISBN10          []string `json:"isbn10"`
	ISBN13          []string `json:"isbn13"`
	BookURI         []string `json:"book_uri"`
	Contributor     string   `json:"contributor"`
	Description     []string `json:"description"`
	Publisher       string   `json:"publisher"`
	Price           []string `json:"price"`
	Dagger          int      `json:"dagger"`
	Asterisk        []int    `json:"asterisk"`
	Genre           *string  `json:"genre"`
	Rating          *string  `json:"rating"`
	NumberOfStars   *string  `json:"number_of_stars"`
	NumberOfPages   *string  `json:"number_of_pages"`
	Language        *string  `json:"language"`
	PublicationDate *string  `json:"publication_date"`
	ReviewsCount    *int     `json:"reviews_count"`
}

// Book is one stored book entity.
type Book struct {
	ID int64 `json:"id"`
	BookData
}

// Document returns the json document stored for the book.
func (b Book) Document() ([]byte, error) {
	return json.Marshal(b.BookData)
}

func BookFromDocument(id int64, document []byte) (Book, error) {
	book := Book{ID: id}
	err := json.Unmarshal(document, &book.BookData)
	return book, err
}

type RankRecord struct {
	IDBook       int64  `json:"id_book"`
	Date         string `json:"date"`
	Category     string `json:"category"`
	Rank         int64  `json:"rank"`
	RankLastWeek int64  `json:"rank_last_week"`
	WeeksOnList  int64  `json:"weeks_on_list"`
}

type ReviewRecord struct {
	IDBook   int64   `json:"id_book"`
	IDReview int64   `json:"id_review"`
	Stars    float64 `json:"stars"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Date     string  `json:"date"`
}

// Records are the three payloads built from one enriched item, they are
// loaded together or not at all.
type Records struct {
	Book    Book
	Ranks   []RankRecord
	Reviews []ReviewRecord
}
