// Package publish uploads the combined session file to object storage.
//
// Two providers are supported: Amazon S3 through aws-sdk-go-v2 and Google
// Cloud Storage. Credentials come from each SDK's default chain; GCS also
// accepts an explicit service-account file. Publishing never modifies or
// removes local files, so a failed upload leaves the output in place for a
// manual retry.
//
// Objects are named <prefix>/<UTC timestamp>-<file name>.
package publish
