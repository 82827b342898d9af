package main

import (
	"fmt"
	"io"

	"github.com/star/emmproc/internal/config"
)

const releaseDate = "2015-05-13"

func printHelp(w io.Writer, cfg config.Config) {
	lastEpoch := cfg.MinYear + cfg.Epochs - 1

	fmt.Fprintf(w, "\n\nEnhanced Magnetic Model - File Processing Utility\n")
	fmt.Fprintf(w, "            --- Model Release Year: %d ---\n", lastEpoch)
	fmt.Fprintf(w, "           --- Software Release Date: %s ---\n", releaseDate)
	fmt.Fprint(w, "USAGE:\n")
	fmt.Fprint(w, "coordinate file: emmproc f input_file output_file [g]\n")
	fmt.Fprint(w, "single point:    emmproc date [M|E] [altitude] [lat] [lon]\n")
	fmt.Fprint(w, "or for help:     emmproc h\n")
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, "The input file may have any number of entries but they must follow\n")
	fmt.Fprint(w, "the following format\n")
	fmt.Fprint(w, "Date and location Formats:\n")
	fmt.Fprintf(w, "   Date: xxxx.xxx for decimal  (%.1f)\n", float64(cfg.MinYear)+3.7)
	fmt.Fprint(w, "         yyyy,mm,dd for year, month, day  (2013,7,1)\n")
	fmt.Fprint(w, "         start-end[-step] for a range, single point only  (2012-2014-0.5)\n")
	fmt.Fprint(w, "   Altitude: M - Above mean sea level: E above WGS84 Ellipsoid\n")
	fmt.Fprint(w, "   Altitude: Kxxxxxx.xxx for kilometers  (K1000.13)\n")
	fmt.Fprint(w, "             Mxxxxxx.xxx for meters  (m1389.24)\n")
	fmt.Fprint(w, "             Fxxxxxx.xxx for feet  (F192133.73)\n")
	fmt.Fprint(w, "   Lat/Lon: xxx.xxx in decimal  (-76.53)\n")
	fmt.Fprint(w, "            ddd,mm,ss in degrees, minutes and seconds  (-76,31,48)\n")
	fmt.Fprint(w, "            (Lat and Lon must be specified in the same format.)\n")
	fmt.Fprint(w, "   Date and altitude must fit model.\n")
	fmt.Fprint(w, "   Lat: -90 to 90 (Use - to denote Southern latitude.)\n")
	fmt.Fprint(w, "   Lon: -180 to 180 (Use - to denote Western longitude.)\n")
	fmt.Fprintf(w, "   Date: %d.0 to %d.0\n", cfg.MinYear, lastEpoch+5)
	fmt.Fprint(w, "   An example of an entry in input file\n")
	fmt.Fprint(w, "   2013.7 E F30000 -70.3 -30.8\n\n")
}

func printFileBanner(w io.Writer, gradient bool) {
	fmt.Fprint(w, "\n\n 'f' switch: converting file with multiple locations.\n")
	fmt.Fprint(w, "     The first five output columns repeat the input coordinates.\n")
	fmt.Fprint(w, "     Then follows D, I, H, X, Y, Z, and F.\n")
	fmt.Fprint(w, "     Finally the SV: Ddot, Idot, Hdot, Xdot, Ydot, Zdot,  and Fdot\n")
	fmt.Fprint(w, "     The units are the same as when the program is\n")
	fmt.Fprint(w, "     run in command line or interactive mode.\n\n")
	if gradient {
		fmt.Fprint(w, "\n  'g' switch: Appends gradients to output file.\n")
		fmt.Fprint(w, "\n  First is the spatial derivative Northward for X, Y and Z.\n")
		fmt.Fprint(w, "\n  Second is the spatial derivative Eastward for X, Y and Z.\n")
		fmt.Fprint(w, "\n  Third is the spatial derivative Downward for X, Y and Z.\n")
	}
}
