package linear

// Option is a function that configures Regression
type Option func(*Regression)

// WithFitIntercept sets whether to calculate the intercept.
// When false, the model is forced through the origin.
func WithFitIntercept(fit bool) Option {
	return func(lr *Regression) {
		lr.fitIntercept = fit
	}
}
