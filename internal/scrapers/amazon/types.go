package amazon

// Review is one customer review as printed on a review page, stars and date
// are left as the raw strings the storefront shows.
type Review struct {
	Stars string `json:"stars"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Date  string `json:"date"`
}

// ProductDetail holds what could be read off a product page, every attribute
// may be missing on its own.
type ProductDetail struct {
	URL             string   `json:"url"`
	Title           *string  `json:"title"`
	Rating          *string  `json:"rating"`
	NumberOfStars   *string  `json:"number_of_stars"`
	Price           *string  `json:"price"`
	NumberOfPages   *string  `json:"number_of_pages"`
	Language        *string  `json:"language"`
	PublicationDate *string  `json:"publication_date"`
	ISBN10          *string  `json:"ISBN-10"`
	ISBN13          *string  `json:"ISBN-13"`
	ReviewsCount    *int     `json:"reviews_count"`
	Reviews         []Review `json:"reviews"`
}
