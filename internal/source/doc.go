// Package source opens the library named by the configuration and returns it
// as a playlist.Reader.
//
// For library.source = "musicdb" it fingerprints the encrypted file, consults
// the decode cache, decrypts on a miss and stores the result, then parses the
// decoded buffer. For "itunes_xml" it loads the XML export. Either way the
// caller gets the fingerprint and path for the export catalog.
package source
