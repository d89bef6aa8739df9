package book

type ErrResponse struct {
	Code    int
	Message string
}

func (e ErrResponse) Error() string {
	return e.Message
}

var ErrResponseBookNotFound = ErrResponse{101, "book not found"}
var ErrResponseBookNotInserted = ErrResponse{102, "book was not inserted, no rows affected"}
var ErrResponseIDInvalid = ErrResponse{103, "book id must be a non-negative integer"}
var ErrResponseYearNotNumeric = ErrResponse{104, "Year can't contain letters."}
var ErrResponseYearTooLong = ErrResponse{105, "Year can't have more than 4 digits."}
