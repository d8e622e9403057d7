package vendors

// Default returns the built-in dictionary covering the enterprise IT
// ecosystem: hyperscalers, hardware, cybersecurity, SaaS and the main
// distributors. Callers can replace it with an external file via
// vendor_dictionary_path.
func Default() *Dictionary {
	d := &Dictionary{
		Vendors: map[string]Entry{
			// Major cloud and software vendors
			"microsoft":    {Tier: 1, Aliases: []string{"msft", "azure", "office365", "teams", "sharepoint", "dynamics365", "m365", "o365"}},
			"google cloud": {Tier: 1, Aliases: []string{"gcp", "google workspace", "gsuite", "bigquery", "google drive"}},
			"aws":          {Tier: 1, Aliases: []string{"amazon web services", "ec2", "s3", "lambda", "rds", "aws cloud"}},
			"oracle":       {Tier: 1, Aliases: []string{"oracle cloud", "oci", "oracle database", "fusion apps"}},
			"sap":          {Tier: 2, Aliases: []string{"sap hana", "sap s4 hana", "sap ariba", "sap cloud"}},
			"salesforce":   {Tier: 2, Aliases: []string{"sfdc", "sales cloud", "service cloud", "marketing cloud"}},

			// Hardware and infrastructure
			"dell":     {Tier: 1, Aliases: []string{"emc", "dell emc", "poweredge", "isilon", "vxrail"}},
			"hp":       {Tier: 2, Aliases: []string{"hewlett packard", "proliant"}},
			"hpe":      {Tier: 2, Aliases: []string{"hp enterprise", "nimble storage", "aruba networks", "synergy", "greenlake"}},
			"lenovo":   {Tier: 2, Aliases: []string{"thinkpad", "ideapad", "lenovo servers"}},
			"cisco":    {Tier: 1, Consolidator: true, Aliases: []string{"webex", "meraki", "umbrella", "duo", "anyconnect", "catalyst"}},
			"juniper":  {Tier: 3, Aliases: []string{"juniper networks", "mist", "qfx"}},
			"arista":   {Tier: 3, Aliases: []string{"arista networks", "arista eos"}},
			"netapp":   {Tier: 2, Aliases: []string{"ontap", "aff", "netapp storage"}},
			"broadcom": {Tier: 1, Consolidator: true, Aliases: []string{"avago", "broadcom software"}},

			// Cybersecurity
			"crowdstrike":        {Tier: 2, CloudSecurity: true, Aliases: []string{"falcon", "crowdstrike falcon", "cs falcon"}},
			"zscaler":            {Tier: 2, CloudSecurity: true, Aliases: []string{"zpa", "zscaler internet access", "zia"}},
			"fortinet":           {Tier: 2, CloudSecurity: true, Aliases: []string{"fortigate", "fortianalyzer", "fortisandbox", "fortinet security"}},
			"palo alto networks": {Tier: 2, CloudSecurity: true, Aliases: []string{"palo alto", "pan-os", "cortex xdr", "prisma cloud"}},
			"sentinelone":        {Tier: 2, CloudSecurity: true, Aliases: []string{"singularity xdr", "sentinel one"}},
			"proofpoint":         {Tier: 3, Aliases: []string{"email protection", "threat response"}},
			"trend micro":        {Tier: 3, CloudSecurity: true, Aliases: []string{"deep security", "cloud one"}},
			"mcafee":             {Tier: 3, Aliases: []string{"mvision", "mcafee endpoint"}},
			"check point":        {Tier: 3, Aliases: []string{"checkpoint", "sandblast", "harmony"}},
			"okta":               {Tier: 3, Aliases: []string{"auth0", "okta identity"}},
			"lacework":           {Tier: 3, CloudSecurity: true, Aliases: []string{"polygraph"}},
			"splunk":             {Tier: 2, Aliases: []string{"splunk cloud", "splunk enterprise"}},
			"symantec":           {Tier: 3, Aliases: []string{"endpoint protection", "symantec cloud"}},
			"fireeye":            {Tier: 3, Aliases: []string{"mandiant", "nx series"}},

			// SaaS, productivity and devops
			"vmware":     {Tier: 1, Aliases: []string{"vsphere", "vcenter", "esxi", "nsx", "workspace one"}},
			"adobe":      {Tier: 2, Aliases: []string{"creative cloud", "acrobat", "adobe sign"}},
			"citrix":     {Tier: 2, Aliases: []string{"citrix workspace", "virtual apps", "xenserver"}},
			"atlassian":  {Tier: 3, Aliases: []string{"jira", "confluence", "bitbucket"}},
			"slack":      {Tier: 3, Aliases: []string{"slack huddles", "slack enterprise"}},
			"zoom":       {Tier: 3, Aliases: []string{"zoom meetings", "zoom phone"}},
			"workday":    {Tier: 3, Aliases: []string{"workday hcm", "workday payroll"}},
			"servicenow": {Tier: 2, Aliases: []string{"now platform", "itsm", "hr service delivery"}},

			// Distributors and resellers
			"td synnex":         {Tier: 4, Aliases: []string{"tech data", "synnex"}},
			"ingram micro":      {Tier: 4, Aliases: []string{"ingram", "ingramcloud"}},
			"arrow electronics": {Tier: 4, Aliases: []string{"arrow cloud"}},
			"avnet":             {Tier: 4, Aliases: []string{"avnet electronics"}},
			"softchoice":        {Tier: 4, Aliases: []string{"softchoice corporation"}},
			"cdw":               {Tier: 4, Aliases: []string{"cdw corporation", "cdwg"}},
			"insight":           {Tier: 4, Aliases: []string{"insight global", "insight enterprises"}},
			"computacenter":     {Tier: 4, Aliases: []string{"computacenter plc"}},
			"shi":               {Tier: 4, Aliases: []string{"shi international", "shi cloud"}},
			"zones":             {Tier: 4, Aliases: []string{"zones llc"}},
		},
		Acquisitions: []Acquisition{
			{Acquirer: "broadcom", Target: "vmware", Year: 2023},
			{Acquirer: "broadcom", Target: "symantec", Year: 2019},
			{Acquirer: "cisco", Target: "splunk", Year: 2024},
			{Acquirer: "fortinet", Target: "lacework", Year: 2024},
			{Acquirer: "hpe", Target: "juniper", Year: 2024},
		},
	}

	// A load-time panic here means the built-in data is broken.
	if err := d.Validate(); err != nil {
		panic(err)
	}
	return d
}
