package service

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"busticket/internal/domain"
)

// TicketDocumentService renders e-ticket documents.
type TicketDocumentService struct {
	issuer string
}

// NewTicketDocumentService creates a new TicketDocumentService.
func NewTicketDocumentService(issuer string) *TicketDocumentService {
	if issuer == "" {
		issuer = "Bus Ticket"
	}
	return &TicketDocumentService{issuer: issuer}
}

// ETicket holds everything printed on an e-ticket.
type ETicket struct {
	Booking *domain.Booking
	Tickets []*domain.Ticket
	Payment *domain.Payment // nil when no payment exists yet
}

// RenderETicket renders an A4 PDF with one line per passenger.
func (s *TicketDocumentService) RenderETicket(doc ETicket) ([]byte, error) {
	if doc.Booking == nil {
		return nil, fmt.Errorf("render e-ticket: missing booking")
	}
	b := doc.Booking
	trip := b.Trip

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.ID, false)
	pdf.SetCreator(s.issuer, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, strings.ToUpper(s.issuer)+" E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking     : " + b.ID,
		"Status      : " + string(b.Status),
		"Booked at   : " + b.BookingTime.Format("Jan 02, 2006 15:04"),
		"Route       : " + trip.Route.StartLocation.FullAddress() + " -> " + trip.Route.EndLocation.FullAddress(),
		"Departure   : " + trip.DepartureTime.Format("Jan 02, 2006 15:04"),
		"Arrival     : " + trip.ArrivalTime.Format("Jan 02, 2006 15:04"),
		"Duration    : " + trip.DurationString(),
		"Bus         : " + trip.Bus.LicensePlate + " (" + trip.Bus.Model + ")",
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(30, 8, "Seat", "B", 0, "", false, 0, "")
	pdf.CellFormat(110, 8, "Passenger", "B", 0, "", false, 0, "")
	pdf.CellFormat(40, 8, "Price", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	for _, t := range doc.Tickets {
		if !t.Active {
			continue
		}
		pdf.CellFormat(30, 7, t.SeatNumber, "", 0, "", false, 0, "")
		pdf.CellFormat(110, 7, t.PassengerName, "", 0, "", false, 0, "")
		pdf.CellFormat(40, 7, formatAmount(t.Price), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+formatAmount(b.TotalAmount))
	pdf.Ln(10)

	if p := doc.Payment; p != nil {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 6, fmt.Sprintf("Payment %s: %s via %s", p.TransactionCode, p.Status, p.Method))
		pdf.Ln(8)
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this e-ticket at boarding. Generated "+time.Now().Format("2006-01-02 15:04")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render e-ticket: %w", err)
	}
	return buf.Bytes(), nil
}

// formatAmount groups thousands with dots, e.g. 150000 -> "150.000".
func formatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var out strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte('.')
		}
		out.WriteRune(d)
	}
	return sign + out.String()
}
