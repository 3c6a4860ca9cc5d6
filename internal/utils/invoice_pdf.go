package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"

	"nike_shop_backend/internal/models"
)

// GenerateTrackingQR génère un QR pointant vers la page de suivi de
// commande, en base64 prêt à mettre dans <img src="...">.
func GenerateTrackingQR(orderID string) (string, error) {
	base := os.Getenv("FRONTEND_URL")
	if base == "" {
		base = "http://localhost:3000"
	}

	png, err := qrcode.Encode(base+"/orders/"+orderID, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderInvoicePDF charge la page facture du front côté serveur et
// l'imprime en PDF via Chrome headless.
func RenderInvoicePDF(frontendURL, orderID, qrBase64 string) ([]byte, error) {
	q := url.Values{}
	q.Set("id", orderID)
	q.Set("qr", qrBase64)

	fullURL := fmt.Sprintf("%s?%s", frontendURL, q.Encode())

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate(fullURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}

// GenerateInvoicePDF assemble la facture PDF d'une commande : QR de suivi
// + rendu de la page facture du front.
func GenerateInvoicePDF(order models.Order) ([]byte, error) {
	orderID := order.ID.Hex()

	qrBase64, err := GenerateTrackingQR(orderID)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %v", err)
	}

	frontURL := os.Getenv("FRONTEND_INVOICE_URL")
	if frontURL == "" {
		frontURL = "http://localhost:3000/invoice"
	}

	return RenderInvoicePDF(frontURL, orderID, qrBase64)
}
