// Package environment names the deployment stage (development, staging or
// production) the billing tools run in. The stage selects logging defaults.
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	if env.IsProduction() {
//	    // JSON logs at info level
//	}
package environment
