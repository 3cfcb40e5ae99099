package classify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sketchsynth/internal/raster"
	"sketchsynth/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitmap() raster.Bitmap {
	bm := raster.Bitmap{Width: 4, Height: 4, Data: make([]float32, 16)}
	bm.Data[5] = 1
	return bm
}

func TestBestFeature(t *testing.T) {
	f := BestFeature([]float64{0.1, 0.6, 0.2, 0.1})
	assert.Equal(t, state.CategoryCurve, f.Category)
	assert.InDelta(t, 0.6, f.Probability, 1e-12)

	// ties keep the earlier category
	f = BestFeature([]float64{0.4, 0.4, 0.1, 0.1})
	assert.Equal(t, state.CategoryLine, f.Category)

	assert.Equal(t, NoFeature(), BestFeature([]float64{0, 0, 0, 0}))
	assert.Equal(t, NoFeature(), BestFeature(nil))
}

type stubSound struct {
	s   Sound
	err error
}

func (c stubSound) PredictSound(context.Context, raster.Bitmap) (Sound, error) { return c.s, c.err }

type stubFeature struct {
	f   state.Feature
	err error
}

func (c stubFeature) PredictFeature(context.Context, raster.Bitmap) (state.Feature, error) {
	return c.f, c.err
}

func TestFallbacks(t *testing.T) {
	ctx := context.Background()
	bm := bitmap()

	assert.Equal(t, NeutralSound(), SoundOrDefault(ctx, nil, bm))
	assert.Equal(t, NeutralSound(), SoundOrDefault(ctx, Unavailable{}, bm))
	assert.Equal(t, NeutralSound(), SoundOrDefault(ctx, stubSound{err: errors.New("boom")}, bm))
	assert.Equal(t, Sound{Noisy: 0.9, Thin: 0.2}, SoundOrDefault(ctx, stubSound{s: Sound{Noisy: 0.9, Thin: 0.2}}, bm))

	assert.Equal(t, NoFeature(), FeatureOrDefault(ctx, nil, bm))
	assert.Equal(t, NoFeature(), FeatureOrDefault(ctx, Unavailable{}, bm))
	want := state.Feature{Probability: 0.7, Category: state.CategoryAcute}
	assert.Equal(t, want, FeatureOrDefault(ctx, stubFeature{f: want}, bm))
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.PredictSound(context.Background(), bitmap())
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = Unavailable{}.PredictFeature(context.Background(), bitmap())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func modelServer(t *testing.T, predictions [][]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req predictRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		assert.Len(t, req.Instances, 1)
		assert.Len(t, req.Instances[0], 4)
		assert.Equal(t, float32(1), req.Instances[0][1][1][0])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: predictions})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientSound(t *testing.T) {
	srv := modelServer(t, [][]float64{{0.25, 0.75}})
	c := NewHTTPClient(srv.URL, "", time.Second)

	s, err := c.PredictSound(context.Background(), bitmap())
	require.NoError(t, err)
	assert.Equal(t, Sound{Noisy: 0.25, Thin: 0.75}, s)

	_, err = c.PredictFeature(context.Background(), bitmap())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClientFeature(t *testing.T) {
	srv := modelServer(t, [][]float64{{0.1, 0.1, 0.1, 0.7}})
	c := NewHTTPClient("", srv.URL, time.Second)

	f, err := c.PredictFeature(context.Background(), bitmap())
	require.NoError(t, err)
	assert.Equal(t, state.CategoryObtuse, f.Category)
	assert.InDelta(t, 0.7, f.Probability, 1e-12)
}

func TestHTTPClientRejectsBadShapes(t *testing.T) {
	srv := modelServer(t, [][]float64{{0.5}})
	c := NewHTTPClient(srv.URL, srv.URL, time.Second)

	_, err := c.PredictSound(context.Background(), bitmap())
	assert.Error(t, err)
	_, err = c.PredictFeature(context.Background(), bitmap())
	assert.Error(t, err)
}

func TestHTTPClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.URL, time.Second)
	_, err := c.PredictSound(context.Background(), bitmap())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")

	assert.Equal(t, NeutralSound(), SoundOrDefault(context.Background(), c, bitmap()))
}

func TestHTTPClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := NewHTTPClient(srv.URL, srv.URL, time.Minute)
	_, err := c.PredictFeature(ctx, bitmap())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
