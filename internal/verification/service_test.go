package verification

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idcheck/internal/document/imaging"
	"idcheck/internal/document/ocr"
	"idcheck/internal/document/ocr/mocks"
	"idcheck/internal/matcher"
	"idcheck/internal/registry/models"
	"idcheck/internal/registry/store"
	dErrors "idcheck/pkg/domain-errors"
	"idcheck/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	roll       *store.Table
	recognizer *mocks.MockRecognizer
	service    *Service
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)

	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.roll = store.NewTable([]models.Record{
		{ID: 1020304050, GivenNames: "MARIA JOSE", FirstSurname: "PEREZ", SecondSurname: "GOMEZ"},
	})
	s.recognizer = mocks.NewMockRecognizer(ctrl)

	svc, err := New(matcher.New(s.roll, nil), WithRecognizer(s.recognizer), WithRollStats(s.roll))
	s.Require().NoError(err)
	s.service = svc
}

func scan(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 400, 250))
	for y := 0; y < 250; y++ {
		for x := 0; x < 400; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func (s *ServiceSuite) TestVerifyClaim() {
	s.Run("authentic claim", func() {
		res, err := s.service.VerifyClaim(s.ctx, ClaimedIdentity{ClaimedID: "1020304050", ClaimedFullName: "MARIA JOSE PEREZ GOMEZ"})
		s.Require().NoError(err)
		s.True(res.Authentic)
		s.Equal(SourceClaim, res.Source)
		s.Equal(s.now, res.CheckedAt)
		s.Equal(matcher.FieldMatch{Found: true, GivenNames: true, FirstSurname: true, SecondSurname: true}, res.Fields)
	})

	s.Run("empty claim is not authentic", func() {
		res, err := s.service.VerifyClaim(s.ctx, ClaimedIdentity{ClaimedID: "", ClaimedFullName: "MARIA JOSE PEREZ GOMEZ"})
		s.Require().NoError(err)
		s.False(res.Authentic)
	})

	s.Run("malformed id is invalid input", func() {
		_, err := s.service.VerifyClaim(s.ctx, ClaimedIdentity{ClaimedID: "not-a-number", ClaimedFullName: "MARIA JOSE PEREZ GOMEZ"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestVerifyDocument() {
	s.Run("recognition failure is unavailable", func() {
		s.recognizer.EXPECT().Recognize(gomock.Any(), gomock.Any(), ocr.HintLine).Return("", errors.New("engine crashed")).Times(2)

		_, err := s.service.VerifyDocument(s.ctx, scan(s.T()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("blank recognition is not authentic", func() {
		s.recognizer.EXPECT().Recognize(gomock.Any(), gomock.Any(), ocr.HintLine).Return("", nil).Times(2)

		res, err := s.service.VerifyDocument(s.ctx, scan(s.T()))
		s.Require().NoError(err)
		s.False(res.Authentic)
	})

	s.Run("corrupt image is invalid input", func() {
		_, err := s.service.VerifyDocument(s.ctx, strings.NewReader("not an image"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestStats() {
	s.Equal(1, s.service.Stats().Records)
}

func TestVerifyDocument_DeterministicRegions(t *testing.T) {
	ctrl := gomock.NewController(t)
	recognizer := mocks.NewMockRecognizer(ctrl)
	roll := store.NewTable([]models.Record{
		{ID: 1020304050, GivenNames: "MARIA JOSE", FirstSurname: "PEREZ", SecondSurname: "GOMEZ"},
	})
	layout := Layout{
		ID:   imaging.Region{X: 0, Y: 0, W: 0.5, H: 0.5},
		Name: imaging.Region{X: 0, Y: 0.5, W: 1, H: 0.5},
	}
	svc, err := New(matcher.New(roll, nil), WithRecognizer(recognizer), WithLayout(layout))
	require.NoError(t, err)

	// Regions differ in width, which identifies the field regardless of
	// the order the goroutines run in.
	recognizer.EXPECT().Recognize(gomock.Any(), gomock.Any(), ocr.HintLine).DoAndReturn(
		func(_ context.Context, img image.Image, _ ocr.Hint) (string, error) {
			if img.Bounds().Dx() == 200 {
				return " 1 020 304 050 ", nil
			}
			return "MARIA JOSE PEREZ GOMEZ", nil
		}).Times(2)

	res, err := svc.VerifyDocument(context.Background(), scan(t))
	require.NoError(t, err)
	assert.True(t, res.Authentic)
	assert.Equal(t, "1020304050", res.ClaimedID)
	assert.Equal(t, "MARIA JOSE PEREZ GOMEZ", res.ClaimedFullName)
}

func TestNew(t *testing.T) {
	roll := store.NewTable(nil)

	t.Run("rejects an invalid layout", func(t *testing.T) {
		_, err := New(matcher.New(roll, nil), WithLayout(Layout{ID: imaging.Region{X: 0.9, Y: 0, W: 0.5, H: 0.1}}))
		assert.Error(t, err)
	})

	t.Run("document verification needs a recognizer", func(t *testing.T) {
		svc, err := New(matcher.New(roll, nil))
		require.NoError(t, err)
		_, err = svc.VerifyDocument(context.Background(), scan(t))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestCleanDocumentNumber(t *testing.T) {
	tests := map[string]string{
		"1.020.304.050":   "1020304050",
		" 1 020 304 050 ": "1020304050",
		"1,020-304":       "1020304",
		"CC 52.000.111":   "CC52000111",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanDocumentNumber(in), in)
	}
}
