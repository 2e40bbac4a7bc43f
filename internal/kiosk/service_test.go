package kiosk

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lord-william/lalalika-logistics/internal/audit"
	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/internal/backend/memory"
	"github.com/lord-william/lalalika-logistics/internal/shipment"
	dErrors "github.com/lord-william/lalalika-logistics/pkg/domain-errors"
)

func validForm() Form {
	return Form{
		SenderName:         "Ada Byron",
		SenderEmail:        "ada@example.com",
		SenderPhone:        "0821234567",
		SenderAddress:      "12 Loop St, Cape Town",
		RecipientName:      "Grace Hopper",
		RecipientEmail:     "grace@example.com",
		RecipientPhone:     "0837654321",
		RecipientAddress:   "34 Main Rd, Durban",
		PackageDescription: "Documents",
		PackageWeight:      "1.5",
		AdditionalNotes:    "Fragile",
	}
}

type ServiceSuite struct {
	suite.Suite
	client  *backend.Client
	service *Service
}

func (s *ServiceSuite) SetupTest() {
	s.client = memory.NewClient()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	activity := audit.NewPublisher(audit.NewDatabaseStore(s.client.DB), logger)
	s.service = NewService(s.client, NewGenerator(s.client.DB), activity, nil, logger)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// TestSubmit tests the full submission pipeline against the in-memory backend.
func (s *ServiceSuite) TestSubmit() {
	s.Run("writes the shipment with its initial timeline", func() {
		s.SetupTest()
		res, err := s.service.Submit(context.Background(), validForm())
		s.Require().NoError(err)
		s.Regexp(`^LLK\d{9}$`, res.TrackingNumber)
		s.Equal("grace@example.com", res.RecipientEmail)
		s.Equal("track.html?number="+res.TrackingNumber, res.TrackingLink)

		rec, err := s.client.DB.Get(context.Background(), "shipments/"+res.ShipmentID)
		s.Require().NoError(err)
		s.Equal(res.TrackingNumber, rec["trackingNumber"])
		s.Equal(shipment.StatusPendingKiosk, rec["status"])
		s.Equal("kiosk", rec["source"])
		s.Equal(res.ShipmentID, rec["id"])

		sender := rec["sender"].(backend.Record)
		s.Equal("Ada Byron", sender["name"])

		pkg := rec["package"].(backend.Record)
		s.Equal("Documents", pkg["description"])
		s.Equal(1.5, pkg["weight"])
		s.Equal("Fragile", pkg["notes"])

		timeline := rec["timeline"].([]any)
		s.Require().Len(timeline, 1)
		first := timeline[0].(backend.Record)
		s.Equal("Package submitted at kiosk", first["label"])
		s.Equal("customer", first["actor"])

		kioskInfo := rec["kioskSubmission"].(backend.Record)
		s.Equal("Ada Byron", kioskInfo["submittedBy"])
	})

	s.Run("records one activity entry", func() {
		s.SetupTest()
		res, err := s.service.Submit(context.Background(), validForm())
		s.Require().NoError(err)

		entries, err := s.client.DB.QueryOnce(context.Background(), "activity", backend.Query{})
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.TypeShipment, entries[0].Record["type"])
		s.Equal("Kiosk shipment created: "+res.TrackingNumber, entries[0].Record["details"])
		s.Equal(res.TrackingNumber, entries[0].Record["trackingNumber"])
	})

	s.Run("signs in anonymously when no identity is active", func() {
		s.SetupTest()
		_, ok := s.client.Auth.CurrentIdentity()
		s.Require().False(ok)

		_, err := s.service.Submit(context.Background(), validForm())
		s.Require().NoError(err)

		ident, ok := s.client.Auth.CurrentIdentity()
		s.Require().True(ok)
		s.True(ident.Anonymous)
	})

	s.Run("keeps an existing identity", func() {
		s.SetupTest()
		auth := s.client.Auth.(*memory.Auth)
		auth.RegisterAccount("clerk@example.com", "secret", "clerk-1")
		_, err := auth.SignIn(context.Background(), "clerk@example.com", "secret")
		s.Require().NoError(err)

		_, err = s.service.Submit(context.Background(), validForm())
		s.Require().NoError(err)

		ident, ok := s.client.Auth.CurrentIdentity()
		s.Require().True(ok)
		s.Equal("clerk-1", ident.UID)
	})

	s.Run("weight and notes are optional", func() {
		s.SetupTest()
		form := validForm()
		form.PackageWeight = ""
		form.AdditionalNotes = ""

		res, err := s.service.Submit(context.Background(), form)
		s.Require().NoError(err)

		rec, err := s.client.DB.Get(context.Background(), "shipments/"+res.ShipmentID)
		s.Require().NoError(err)
		pkg := rec["package"].(backend.Record)
		s.Nil(pkg["weight"])
		s.Nil(pkg["notes"])
	})

	s.Run("tracking numbers stay unique across submissions", func() {
		s.SetupTest()
		seen := make(map[string]bool)
		for i := 0; i < 10; i++ {
			res, err := s.service.Submit(context.Background(), validForm())
			s.Require().NoError(err)
			s.False(seen[res.TrackingNumber])
			seen[res.TrackingNumber] = true
		}
	})
}

// TestSubmitValidation tests that rejected forms leave no trace behind.
func (s *ServiceSuite) TestSubmitValidation() {
	requiredFieldCases := map[string]func(*Form){
		"sender name":         func(f *Form) { f.SenderName = "" },
		"sender email":        func(f *Form) { f.SenderEmail = "" },
		"sender phone":        func(f *Form) { f.SenderPhone = "" },
		"sender address":      func(f *Form) { f.SenderAddress = "" },
		"recipient name":      func(f *Form) { f.RecipientName = "" },
		"recipient email":     func(f *Form) { f.RecipientEmail = "" },
		"recipient phone":     func(f *Form) { f.RecipientPhone = "" },
		"recipient address":   func(f *Form) { f.RecipientAddress = "" },
		"package description": func(f *Form) { f.PackageDescription = "" },
	}

	for name, clear := range requiredFieldCases {
		s.Run("missing "+name, func() {
			s.SetupTest()
			form := validForm()
			clear(&form)

			_, err := s.service.Submit(context.Background(), form)
			s.Require().ErrorIs(err, dErrors.New(dErrors.CodeValidation,
				"Please complete all required fields before submitting."))
		})
	}

	s.Run("whitespace-only fields are rejected", func() {
		s.SetupTest()
		form := validForm()
		form.SenderName = "   "

		_, err := s.service.Submit(context.Background(), form)
		s.Require().True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("non-numeric weight is rejected", func() {
		s.SetupTest()
		form := validForm()
		form.PackageWeight = "heavy"

		_, err := s.service.Submit(context.Background(), form)
		s.Require().ErrorIs(err, dErrors.New(dErrors.CodeValidation,
			"Package weight must be a number."))
	})

	s.Run("a rejected form writes nothing", func() {
		s.SetupTest()
		form := validForm()
		form.RecipientEmail = ""

		_, err := s.service.Submit(context.Background(), form)
		s.Require().Error(err)

		shipments, err := s.client.DB.QueryOnce(context.Background(), "shipments", backend.Query{})
		s.Require().NoError(err)
		s.Empty(shipments)

		activity, err := s.client.DB.QueryOnce(context.Background(), "activity", backend.Query{})
		s.Require().NoError(err)
		s.Empty(activity)

		_, ok := s.client.Auth.CurrentIdentity()
		s.False(ok, "validation failures must not create an identity")
	})
}
