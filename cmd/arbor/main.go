/*
Command arbor loads HTML documents into document trees and prints them.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

func main() {
	Execute()
}
