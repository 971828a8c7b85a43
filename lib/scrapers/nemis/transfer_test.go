package nemis

import (
	"context"
	"testing"
	"time"

	"nemis-backend/lib/telemetry"
	"nemis-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestRequestPlacement(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/nemis")
	defer cleanup()
	ctx := context.Background()

	placementRequest := RequestPlacementRequest{
		IndexNo:     "100042",
		Name:        "Baraka Mwangi",
		Gender:      "M",
		ParentName:  "Esther Mwangi",
		ParentPhone: "0722000001",
		ParentIdNo:  "12345678",
	}

	t.Run("returns the tracking number", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		result, err := client.RequestPlacement(ctx, placementRequest)
		require.NoError(t, err)
		require.Equal(t, "PR-2026-0042", result.RequestNo)
		require.Equal(t, 1, portal.placementSaves)
	})

	t.Run("an unrecognized rejection surfaces as unknown", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		broken := placementRequest
		broken.ParentPhone = " "
		result, err := client.RequestPlacement(ctx, broken)
		require.Error(t, err)
		require.Empty(t, result.RequestNo)
		require.Equal(t, 1, portal.placementSaves)
	})

	t.Run("incomplete request is rejected locally", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		_, err := client.RequestPlacement(ctx, RequestPlacementRequest{IndexNo: "100042"})
		require.Error(t, err)
		require.Equal(t, 0, portal.placementSaves)
	})
}

func TestCaptureBiodata(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/nemis")
	defer cleanup()
	ctx := context.Background()

	biodataRequest := CaptureBiodataRequest{
		IndexNo:     "100042",
		Name:        "Baraka Mwangi",
		Gender:      "M",
		DateOfBirth: time.Date(2011, 6, 2, 0, 0, 0, 0, timezone.Location),
		BirthCertNo: "BC-991042",
		Grade:       "Grade 7",
	}

	t.Run("captures and returns the upi", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		result, err := client.CaptureBiodata(ctx, biodataRequest)
		require.NoError(t, err)
		require.Equal(t, "AAA0000099", result.Upi)
		require.Equal(t, 1, portal.biodataSaves)
	})

	t.Run("duplicate index conflict resubmits once", func(t *testing.T) {
		portal, server := newFakePortal(t)
		portal.conflictMode = "once"
		client := newTestClient(t, server, ClientOptions{})

		result, err := client.CaptureBiodata(ctx, biodataRequest)
		require.NoError(t, err)
		require.Equal(t, "AAA0000099", result.Upi)
		require.Equal(t, 2, portal.biodataSaves)
	})

	t.Run("persistent conflict is a business failure", func(t *testing.T) {
		portal, server := newFakePortal(t)
		portal.conflictMode = "always"
		client := newTestClient(t, server, ClientOptions{})

		_, err := client.CaptureBiodata(ctx, biodataRequest)
		requireBusinessError(t, err, "duplicate index number")
		require.Equal(t, 2, portal.biodataSaves)
	})
}

func TestTransferLearner(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/nemis")
	defer cleanup()
	ctx := context.Background()

	t.Run("files the transfer request", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		result, err := client.TransferLearner(ctx, TransferLearnerRequest{
			Upi:    "AAA0000003",
			Reason: "Family relocated to Mombasa",
		})
		require.NoError(t, err)
		require.Equal(t, "TR-2026-0108", result.RequestNo)
		require.Equal(t, 1, portal.transferReceives)
	})

	t.Run("unknown upi is a business failure", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		_, err := client.TransferLearner(ctx, TransferLearnerRequest{
			Upi:    "ZZZ9999999",
			Reason: "Family relocated",
		})
		requireBusinessError(t, err, "no learner found")
		require.Equal(t, 0, portal.transferReceives)
	})

	t.Run("missing reason is rejected locally", func(t *testing.T) {
		portal, server := newFakePortal(t)
		client := newTestClient(t, server, ClientOptions{})

		_, err := client.TransferLearner(ctx, TransferLearnerRequest{Upi: "AAA0000003"})
		require.Error(t, err)
		require.Equal(t, 0, portal.transferReceives)
	})
}
