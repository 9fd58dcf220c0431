// Package analysis provides spectral tools for traced mechanism runs.
//
//   - [FFT]: radix-2 discrete Fourier transform
//   - [PowerSpectrum]: magnitude of the positive-frequency bins
//   - [DominantFrequency]: strongest periodic component of a series, any length
//
// A crank turning at n rpm drives every link at n/60 Hz, so the dominant
// frequency of any coordinate series is a check on the angle integrator:
//
//	xs := result.Series(func(f trace.Frame) float64 { return f.Pose.Coupler.X })
//	hz := analysis.DominantFrequency(xs, float64(cfg.FPS))
package analysis
