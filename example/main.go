package main

import (
	"log"
	"os"

	"github.com/soapywu/pbxedit/pbxproj"
)

func main() {
	projectPath := "project.pbxproj"
	project := pbxproj.NewPbxProject(projectPath)
	err := project.Parse()
	if err != nil {
		log.Fatal(err)
	}
	dumpToFile := func(name string) {
		file, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal(err)
		}
		defer file.Close()

		err = project.Dump(file)
		if err != nil {
			log.Fatal(err)
		}
	}

	dumpToFile("OriginalProject.json")
	if _, err := project.CollapseGroups("Extensions"); err != nil {
		log.Println(err)
	}
	if _, err := project.DeduplicateAll(); err != nil {
		log.Println(err)
	}
	err = project.AddSourceFile("Sources/Call.swift", "SDK", "TelnyxRTC")
	if err != nil {
		log.Println(err)
	}
	_, err = project.AssignSources([]string{"TelnyxWebRTCDemoUITests.swift"}, "TelnyxWebRTCDemoUITests")
	if err != nil {
		log.Println(err)
	}
	dumpToFile("ModifiedProject.json")

	err = project.Write("projectAfter.pbxproj")
	if err != nil {
		log.Fatal(err)
	}
}
