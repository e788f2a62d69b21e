// Package zfp is a client for the ZFP fiscal printer driver server: a
// network service that fronts a serial- or LAN-attached fiscal device
// and exposes its command protocol. The client sends one typed command
// at a time over a framed TCP session and decodes one structured
// response, or a classified device/server error.
package zfp
