package app

import "errors"

// errMissingRow indicates a vectorstore.Document's metadata was missing
// its "row" key, meaning it was not written by this package's ToDocument
// methods (a corrupted or foreign document).
var errMissingRow = errors.New("app: document is missing its row payload")
