package store

// Key namespaces. Primary records live under their own prefix; loan
// index keys live under "idx:" so a scan of "loan:" never touches them.
const (
	bookPrefix   = "book:"
	readerPrefix = "reader:"
	loanPrefix   = "loan:"

	loanByBookPrefix   = "idx:loans:book:"
	loanByReaderPrefix = "idx:loans:reader:"
)

// loanByBookKey builds the secondary index key binding a loan to its book.
// Layout: idx:loans:book:<bookID>:<loanID> -> loanID
func loanByBookKey(bookID, loanID string) []byte {
	return []byte(loanByBookPrefix + bookID + ":" + loanID)
}

// loanByBookScanPrefix is the prefix covering all loans of one book.
func loanByBookScanPrefix(bookID string) []byte {
	return []byte(loanByBookPrefix + bookID + ":")
}

// loanByReaderKey builds the secondary index key binding a loan to its reader.
// Layout: idx:loans:reader:<readerID>:<loanID> -> loanID
func loanByReaderKey(readerID, loanID string) []byte {
	return []byte(loanByReaderPrefix + readerID + ":" + loanID)
}

// loanByReaderScanPrefix is the prefix covering all loans of one reader.
func loanByReaderScanPrefix(readerID string) []byte {
	return []byte(loanByReaderPrefix + readerID + ":")
}
