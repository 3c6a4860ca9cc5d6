package commerce

import (
	"errors"
	"fmt"
)

// Codes machine renvoyés au front en plus du message.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeEmptyCart         = "EMPTY_CART"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeValidation        = "VALIDATION_ERROR"
	CodePaymentProvider   = "PAYMENT_PROVIDER_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

var (
	ErrCartNotFound    = &Error{Code: CodeNotFound, Message: "Panier introuvable"}
	ErrProductNotFound = &Error{Code: CodeNotFound, Message: "Produit introuvable"}
	ErrOrderNotFound   = &Error{Code: CodeNotFound, Message: "Commande introuvable"}
	ErrItemNotFound    = &Error{Code: CodeNotFound, Message: "Article introuvable dans le panier"}
	ErrEmptyCart       = &Error{Code: CodeEmptyCart, Message: "Panier vide"}
)

// Error est une erreur métier avec un code machine stable.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// StockError signale un stock insuffisant en nommant le produit fautif et
// la quantité encore disponible. Aucune commande n'est créée quand elle
// est renvoyée.
type StockError struct {
	ProductID string
	Product   string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %s : %d disponible(s), %d demandé(s)",
		e.Product, e.Available, e.Requested)
}

// ValidationError couvre les entrées client malformées.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsNotFound teste si err correspond à une ressource absente.
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == CodeNotFound
}
