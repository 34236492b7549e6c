// Package normalize turns free-text user input and loosely typed provider
// records into canonical values: stock symbols, news domains and headlines.
package normalize
