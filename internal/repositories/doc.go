// Package repositories implements SQLite persistence for the state flickx keeps between invocations.
//
// Key Implementations:
//   - [PreferenceRepository] : saved listing filters (languages and genres) per profile
//   - [CookieRepository] : cookies issued by the proxy, keyed by origin
//   - [PersistentJar] : an [http.CookieJar] that writes through to a [CookieRepository], so a login made by one
//     command is visible to the next
//   - [ExportRepository] : history of collection exports
//
// Tables are created by the embedded migrations in the shared package.
package repositories
