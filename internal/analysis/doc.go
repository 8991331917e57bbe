// Package analysis inspects recorded swing-angle series.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of a series via go-dsp
//   - [Period]: period from upward zero crossings
//   - [PhasePortraitToASCII]: terminal phase plot of angle against rate
//
// A single pendulum of arm length L swings at roughly 1/(2π)·sqrt(g/L) Hz:
//
//	f := analysis.DominantFrequency(rec.Series(0), dt)
package analysis
